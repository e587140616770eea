// Package config loads typed configuration structs from environment
// variables using github.com/caarlos0/env field tags, with optional `.env`
// file support via github.com/joho/godotenv.
//
// Configuration is cached per struct type for the lifetime of the process:
// every caller of Load with the same type receives the same parsed value,
// which keeps components consistent without passing config through every
// constructor.
//
// # Usage
//
//	type PGConfig struct {
//		ConnString string `env:"DATABASE_URL,required"`
//	}
//
//	var cfg PGConfig
//	config.MustLoad(&cfg)
package config
