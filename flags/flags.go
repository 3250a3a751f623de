package flags

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/npc-z/minihttpie/exchange"
	"github.com/npc-z/minihttpie/input"
	"github.com/npc-z/minihttpie/output"
	"github.com/pborman/getopt"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type FlagSet interface {
	Args() []string
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options
	PrintVersion    bool
	PrintLicense    bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

func Parse(args []string) ([]string, FlagSet, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, term terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	inputOptions := input.Options{}
	exchangeOptions := exchange.Options{}
	outputOptions := output.Options{}
	var ignoreStdin bool
	var verbose bool
	var printVersion bool
	var printLicense bool
	var auth string
	verify := "yes"
	printFlag := "\000" // "\000" is a special value that indicates user did not specify --print
	timeout := "30s"

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "serialize body in application/json (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "serialize body in application/x-www-form-urlencoded")
	flagSet.BoolVarLong(&verbose, "verbose", 'v', "print the request as well as the response")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.StringVarLong(&auth, "auth", 'a', "username and password for basic auth (USER[:PASS])")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "seconds that you allow the whole operation to take")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow redirects")
	flagSet.StringVarLong(&verify, "verify", 0, `verify TLS certificates ("yes" or "no")`)
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "force HTTP/1.1 protocol")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "save the response body into a file instead of printing it")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "FILE to save the response body into")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite the output file instead of choosing a fresh name")
	flagSet.BoolVarLong(&printVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&printLicense, "license", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, flagSet, nil, input.NewUsageError(err.Error())
	}

	// Check stdin
	if !ignoreStdin && !term.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if verbose && printFlag == "\000" {
		printFlag = "HBhb"
	}
	if err := parsePrintFlag(printFlag, term, &outputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	// Parse --timeout
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, flagSet, nil, err
	}
	exchangeOptions.Timeout = d

	// Parse --auth
	if auth != "" {
		authOptions, err := parseAuth(auth)
		if err != nil {
			return nil, flagSet, nil, err
		}
		exchangeOptions.Auth = authOptions
	}

	// Parse --verify
	switch verify {
	case "yes":
		exchangeOptions.SkipVerify = false
	case "no":
		exchangeOptions.SkipVerify = true
	default:
		return nil, flagSet, nil, input.NewUsageError(`value of --verify must be "yes" or "no"`)
	}

	// Color
	outputOptions.EnableColor = term.stdoutIsTerminal

	optionSet := &OptionSet{
		InputOptions:    inputOptions,
		ExchangeOptions: exchangeOptions,
		OutputOptions:   outputOptions,
		PrintVersion:    printVersion,
		PrintLicense:    printLicense,
	}
	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, term terminalInfo, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if term.stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
		return nil
	}
	for _, c := range printFlag {
		switch c {
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		default:
			return input.NewUsageError("invalid char in --print value (must consist of HBhb): " + string(c))
		}
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), input.NewUsageError("value of --timeout must be a number or duration string: " + timeout)
	}
	return d, nil
}

func parseAuth(auth string) (exchange.AuthOptions, error) {
	userName := auth
	password := ""
	if colon := strings.IndexByte(auth, ':'); colon != -1 {
		userName = auth[:colon]
		password = auth[colon+1:]
	} else {
		p, err := askPassword()
		if err != nil {
			return exchange.AuthOptions{}, err
		}
		password = p
	}
	if userName == "" {
		return exchange.AuthOptions{}, input.NewUsageError("username of --auth must not be empty")
	}
	return exchange.AuthOptions{
		Enabled:  true,
		UserName: userName,
		Password: password,
	}, nil
}
