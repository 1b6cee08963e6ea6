package main

import (
	"bitbucket.org/airenas/subtitler/internal/app/status"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	status.Execute()
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
     _        _           
 ___| |_ __ _| |_ _  _ ___
(_-<|  _/ _` + "`" + ` |  _| || (_-<
/__/ \__\__,_|\__|\_,_/__/ v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/subtitler"))
}
