/*
Package gconf provides a toolset for managing an extension configuration.

Each extension keeps its configuration as a single protobuf message stored
under a key derived from the package name. The configuration is validated
every time it is written.

Initial configuration is loaded from the genesis file, from the "conf"
section, keyed by the package name:

	{
		"conf": {
			"vault": {
				"token": "USDV",
				...
			}
		}
	}
*/
package gconf
