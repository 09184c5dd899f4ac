// Package config handles configuration loading for coven-chat.
//
// # Configuration File
//
// Location (in order):
//
//  1. --config flag
//  2. Path from COVEN_CHAT_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/coven/chat.yaml (~/.config/coven/chat.yaml)
//
// Files ending in .toml are decoded as TOML, anything else as YAML.
//
// # Environment Variable Expansion
//
// Values can reference environment variables with ${VAR_NAME}. The CLI loads
// a .env file from the working directory first, so secrets can live there:
//
//	identity:
//	  id_token: "${COVEN_ID_TOKEN}"
//
// # Configuration Sections
//
//	backend:
//	  base_url: "https://chat.example.com"  # required
//	  timeout: "30s"                        # per request
//
//	identity:
//	  email: "me@example.com"               # or one of:
//	  id_token: "${COVEN_ID_TOKEN}"
//	  id_token_file: "/run/user/1000/coven/id_token"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
