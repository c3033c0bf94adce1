/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import (
	"github.com/hance08/keasync/cmd"
	"github.com/hance08/keasync/migrations"
)

func main() {
	cmd.Execute(migrations.FS)
}
