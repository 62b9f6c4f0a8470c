// Package config loads reflex.yaml.
//
// # Configuration File Structure
//
//	addr: ":8080"
//	tick: 1s
//	queue_size: 256
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  namespace: reflex
//	tracing:
//	  enabled: false
//	  name: reflex
//
// # Usage
//
//	cfg, err := config.Load("reflex.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Addr:", cfg.Addr)
package config
