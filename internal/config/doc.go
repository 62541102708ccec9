// Package config provides configuration management for stackprobe.
//
// Configuration is layered. Each layer is decoded on top of the previous one,
// so a file only needs to mention the keys it overrides:
//
//  1. Default Configuration (GetDefaultConfig)
//  2. User Configuration (~/.config/stackprobe/config.yaml)
//  3. Project Configuration (./.stackprobe/config.yaml)
//  4. Explicit Configuration (--config), which must exist when given
//
// The merged result is validated with struct tags before it is returned.
//
// # Configuration Structure
//
//	cli:
//	  binary: rapydo
//	  args: []
//	  timeout: 10m
//	  env:
//	    COMPOSE_PROJECT_NAME: "${USER}-e2e"
//	projectrc: .projectrc
//	project:
//	  root: projects
//	  backendDir: backend
//	  swaggerDir: swagger
//	repository:
//	  hostingBase: https://github.com
//	  organization: rapydo
//	  gitExtension: git
//	retry:
//	  maxAttempts: 30
//	  delay: 2s
//	containers:
//	  runtime: docker      # or kubernetes
//	  swarmMode: false
//
// # Project runtime configuration
//
// The driven CLI keeps its own settings in a projectrc file. ProjectRC parses
// it and answers dotted-path queries, returning "" for missing keys:
//
//	rc, err := config.LoadProjectRC(cfg.ProjectRC, false)
//	interval := rc.Variable("HEALTHCHECK_INTERVAL")
package config
