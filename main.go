package main

import (
	"log"

	"github.com/anoixa/image-thumbnailer/config"

	"github.com/anoixa/image-thumbnailer/cmd"
)

func main() {
	log.Printf("image thumbnailer %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
