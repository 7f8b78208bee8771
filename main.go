package main

import (
	"github.com/DavidGR0788/ruleta/cmd"
	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/capture"
	"github.com/DavidGR0788/ruleta/domain/vision"
	"github.com/DavidGR0788/ruleta/domain/vision/opencv"
	"github.com/DavidGR0788/ruleta/domain/vision/purego"
)

func main() {
	cmd.Execute(cmd.Options{
		Backends: map[string]func() vision.Ops{
			config.BackendOpenCV: func() vision.Ops { return opencv.New() },
			config.BackendPureGo: func() vision.Ops { return purego.New() },
		},
		Grabber: capture.ScreenGrabber{},
	})
}
