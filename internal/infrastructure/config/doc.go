// Package config handles loading and validating the bus service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GRAYLOGIC_* environment variables
//   - Validation of every section, reported in one error
//   - Default value handling
//
// Sensitive values (MQTT password, InfluxDB token) should be set through the
// environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bus.TickInterval)
package config
