package main

import (
	"bitbucket.org/airenas/subtitler/internal/app/upload"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	upload.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
           _    _   _ _   _         
 ___ _  _| |__| |_(_) |_| |___ _ _ 
(_-<| || | '_ \  _| |  _| / -_) '_|
/__/ \_,_|_.__/\__|_|\__|_\___|_|  
                 _              _ 
  _  _ _ __ | |___  __ _ __| |
 | || | '_ \| / _ \/ _` + "`" + ` / _` + "`" + ` |
  \_,_| .__/|_\___/\__,_\__,_| v: %s
      |_|
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/subtitler"))
}
