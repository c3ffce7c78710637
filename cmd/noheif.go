//go:build !heif

package cmd

const heifBuild = false
