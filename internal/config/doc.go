// Package config provides configuration parsing for vessel.
//
// The configuration is stored in vessel.yaml and loaded with viper. Every
// key can be overridden from the environment with the VESSEL_ prefix,
// dots replaced by underscores: VESSEL_SERVER_PORT, VESSEL_HYDRATE_TIMEOUT.
//
// # Configuration File Structure
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	  shutdown_timeout: 30s
//	  max_body_bytes: 4194304
//	  metrics: true
//	  tracing: false
//	hydrate:
//	  timeout: 30s
//	  lang: en
//	  canonical: true
//	  prune_css: true
//	  inline_loader: true
//	  loader_script: /build/loader.js
//	  collapse_whitespace: false
//	bundles:
//	  dir: build
//	  manifest: manifest.json
//	  s3:
//	    bucket: my-assets
//	    prefix: build/
//	    region: eu-west-1
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Address())
package config
