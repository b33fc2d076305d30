package main

import (
	"os"
)

// @title SIAK Warlock API
// @version 0.1.0
// @description Course matching, catalog change tracking and captcha relay
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
