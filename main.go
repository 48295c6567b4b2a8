/*
 * rescmaskc - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rescmask/rescmaskc/config"
	"github.com/rescmask/rescmaskc/emitter"
	"github.com/rescmask/rescmaskc/frontend"
	"github.com/rescmask/rescmaskc/internal/rclog"
	"github.com/rescmask/rescmaskc/pipeline"
	"github.com/rescmask/rescmaskc/rescerr"
)

var Logger *slog.Logger

func main() {
	optInput := getopt.StringLong("input", 'i', "", "Input source file")
	optOutput := getopt.StringLong("output", 'o', "", "Output source file")
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optNoGapFilling := getopt.BoolLong("no-gap-filling", 'g', "Disable the concatenator's swap-and-patch pass")
	optNoBitBlast := getopt.BoolLong("no-bitblast", 'z', "Disable the bit-blaster")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logFile *os.File
	if optLogFile != nil && *optLogFile != "" {
		logFile, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(rclog.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, false))
	slog.SetDefault(Logger)

	if *optInput == "" {
		Logger.Error("Please specify an input file with -i")
		os.Exit(1)
	}

	flags := config.Default()
	if optConfig != nil && *optConfig != "" {
		var err error
		flags, err = config.LoadFile(*optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}
	if *optNoGapFilling {
		flags.GapFillingEnabled = false
	}
	if *optNoBitBlast {
		flags.Z3BlastingEnabled = false
	}

	src, err := os.ReadFile(*optInput)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	fn, err := frontend.Parse(string(src))
	if err != nil {
		Logger.Error("parse failed", "error", err.Error())
		os.Exit(1)
	}

	compiler := pipeline.New()
	result, err := compiler.Compile(fn.Region, fn.Return, flags)
	if err != nil {
		code := 2
		if rescerr.Is(err, rescerr.KindInput) {
			code = 1
		}
		Logger.Error("compile failed", "error", err.Error())
		os.Exit(code)
	}
	for _, w := range result.Warnings {
		Logger.Warn(w.String())
	}

	out := emitter.Emit(fn.Name, fn.Params, result.Region, fn.Return, emitter.Sanitizer{Strict: true})

	if *optOutput != "" {
		if err := os.WriteFile(*optOutput, []byte(out), 0o644); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	} else {
		fmt.Print(out)
	}
}
