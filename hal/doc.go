// Package hal holds the bus implementations that carry a session to the
// display chip. Each subpackage provides an eve.Bus:
//
//   - spidev drives a Linux spidev port through periph.io.
//   - tinyspi drives any tinygo.org/x/drivers SPI bus, for sessions hosted
//     on a microcontroller.
//   - klipper reaches the chip through the SPI commands of a Klipper
//     protocol microcontroller on a serial link.
package hal
