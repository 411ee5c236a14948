/*
Package config loads docstore connection settings.

Settings come from a YAML file, from DOCSTORE_* environment variables, or
both. A .env file can seed the environment first:

	_ = config.LoadEnvFile(".env")
	cfg, err := config.Load("docstore.yaml")
	if err != nil {
	    return err
	}
	cfg.Overlay(config.FromEnv())
	if err := cfg.Validate(); err != nil {
	    return err
	}

Validate fills the defaults: backend "cosmos", partition key path
"/_partitionKey" and log level "info".
*/
package config
