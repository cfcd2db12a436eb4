// Package config provides configuration parsing for Wayfinder applications.
//
// The configuration is stored in wayfinder.json. This package handles
// loading, saving, environment overrides and validation.
//
// # Configuration File Structure
//
//	{
//	  "name": "learning-assistant",
//	  "router": {
//	    "mode": "history",
//	    "basePath": "/app"
//	  },
//	  "server": {
//	    "addr": "localhost:3000",
//	    "wsPath": "/_wayfinder/ws"
//	  },
//	  "manifest": "pages.yaml",
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"enabled": true},
//	  "tracing": {"enabled": false}
//	}
//
// # Environment
//
// WAYFINDER_MODE, WAYFINDER_ADDR, WAYFINDER_LOG_LEVEL and the other variables
// named in the struct tags override the file. The CLI loads a .env file
// first.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
