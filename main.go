package minihttpie

import (
	"bufio"
	"fmt"
	"net/http"
	"os"

	"github.com/npc-z/minihttpie/exchange"
	"github.com/npc-z/minihttpie/flags"
	"github.com/npc-z/minihttpie/input"
	"github.com/npc-z/minihttpie/output"
	"github.com/npc-z/minihttpie/version"
	"github.com/pkg/errors"
)

// Exit statuses of the CLI. Any HTTP status, including errors like 500,
// is a success here: the request was made and a response came back.
const (
	ExitStatusSuccess        = 0
	ExitStatusBuildError     = 1
	ExitStatusTransportError = 2
	ExitStatusUsageError     = 3
)

// ExitStatus maps an error returned by Main to the process exit status.
func ExitStatus(err error) int {
	if err == nil {
		return ExitStatusSuccess
	}
	switch errors.Cause(err).(type) {
	case *input.UsageError:
		return ExitStatusUsageError
	case *exchange.TransportError:
		return ExitStatusTransportError
	default:
		return ExitStatusBuildError
	}
}

// Main runs one invocation: parse flags and arguments, build the request,
// send it, print the response. Errors stop the run immediately; nothing is
// ever sent on a build failure.
func Main(args []string) error {
	cmdArgs, flagSet, optionSet, err := flags.Parse(args)
	if err != nil {
		if _, ok := errors.Cause(err).(*input.UsageError); ok && flagSet != nil {
			flagSet.PrintUsage(os.Stderr)
		}
		return err
	}

	if optionSet.PrintVersion {
		fmt.Fprintf(os.Stdout, "minihttpie %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicense {
		version.PrintLicenses(os.Stdout)
		return nil
	}

	in, err := input.ParseArgs(cmdArgs, os.Stdin, &optionSet.InputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		flagSet.PrintUsage(os.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	request, err := exchange.BuildHTTPRequest(in, &optionSet.ExchangeOptions)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()
	printer := output.NewPrinter(writer, &optionSet.OutputOptions)

	if err := printRequest(printer, request, &optionSet.OutputOptions); err != nil {
		return err
	}
	if optionSet.OutputOptions.PrintRequestHeader || optionSet.OutputOptions.PrintRequestBody {
		fmt.Fprintln(writer)
	}
	writer.Flush()

	resp, err := exchange.SendRequest(request, &optionSet.ExchangeOptions)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if optionSet.OutputOptions.Download {
		return downloadResponse(printer, resp, in, &optionSet.OutputOptions)
	}
	return printResponse(printer, resp, &optionSet.OutputOptions)
}

func printRequest(printer output.Printer, request *http.Request, options *output.Options) error {
	if options.PrintRequestHeader {
		if err := printer.PrintRequestLine(request); err != nil {
			return err
		}
		if err := printer.PrintHeader(request.Header); err != nil {
			return err
		}
	}
	if options.PrintRequestBody && request.GetBody != nil {
		body, err := request.GetBody()
		if err != nil {
			return err
		}
		defer body.Close()
		if err := printer.PrintBody(body, request.Header.Get("Content-Type")); err != nil {
			return err
		}
	}
	return nil
}

func printResponse(printer output.Printer, resp *http.Response, options *output.Options) error {
	if options.PrintResponseHeader {
		if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(resp.Header); err != nil {
			return err
		}
	}
	if options.PrintResponseBody {
		if err := printer.PrintBody(resp.Body, resp.Header.Get("Content-Type")); err != nil {
			return err
		}
	}
	return nil
}

func downloadResponse(printer output.Printer, resp *http.Response, in *input.Input, options *output.Options) error {
	if options.PrintResponseHeader {
		if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(resp.Header); err != nil {
			return err
		}
	}
	fileWriter := output.NewFileWriter(in.URL, options)
	return fileWriter.Download(resp)
}
