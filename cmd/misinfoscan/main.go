package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	infoTag = color.New(color.FgBlue).Sprint("[info]")
	warnTag = color.New(color.FgYellow).Sprint("[warn]")
	okTag   = color.New(color.FgGreen).Sprint("[ok]")
	failTag = color.New(color.FgRed).Sprint("[error]")
)

func info(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, infoTag+" "+msg+"\n", a...)
}

func warn(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, warnTag+" "+msg+"\n", a...)
}

func ok(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, okTag+" "+msg+"\n", a...)
}

func fail(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, failTag+" "+msg+"\n", a...)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "misinfoscan",
		Short: "Transcribe short clips and screen them for public-health misinformation",
		Long: `misinfoscan extracts audio from video or audio clips, transcribes the
speech, and classifies each transcript with an LLM into NO_MISINFO,
MISINFO, DEBUNKING, or CANNOT_RECOGNIZE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newReportCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fail("%v", err)
		os.Exit(1)
	}
}
