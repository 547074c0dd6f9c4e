// Package platform turns host facts and user settings into the concrete
// parameters used to install the Android SDK.
//
// Facts describe the host (kernel, OS family, architecture), Settings hold the
// user configuration, and Resolve derives an immutable Resolved value without
// touching the filesystem or the network.
package platform
