// Command irctl talks to lircd over its control socket.
//
// It lists remotes and their keys, sends IR signals, simulates button
// presses, changes driver options and watches the button presses lircd
// broadcasts. Settings come from flags, then the config file, then the lircd
// options file.
package main
