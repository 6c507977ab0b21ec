// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/jeranaias/algods/internal/usage"
)

// Version information (set by main from build flags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies a top-level algods command.
type Command int

const (
	CmdHelp Command = iota
	CmdUnknown
	CmdStartNet
	CmdStopNet
	CmdGetAccount
	CmdListAccounts
	CmdCreateAccount
	CmdFundAccount
	CmdCreateToken
	CmdBuild
	CmdCreateApp
	CmdAppInfo
	CmdCallApp
	CmdListTokens
	CmdListApps
	CmdStatus
	CmdConfig
	CmdHistory
	CmdVersion
)

var commandNames = map[string]Command{
	"help":          CmdHelp,
	"startnet":      CmdStartNet,
	"stopnet":       CmdStopNet,
	"getaccount":    CmdGetAccount,
	"listaccounts":  CmdListAccounts,
	"createaccount": CmdCreateAccount,
	"fundaccount":   CmdFundAccount,
	"createtoken":   CmdCreateToken,
	"build":         CmdBuild,
	"createapp":     CmdCreateApp,
	"appinfo":       CmdAppInfo,
	"callapp":       CmdCallApp,
	"listtokens":    CmdListTokens,
	"listapps":      CmdListApps,
	"status":        CmdStatus,
	"config":        CmdConfig,
	"history":       CmdHistory,
	"version":       CmdVersion,
}

// String returns the command word.
func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "unknown"
}

// LookupCommand resolves a command word case-insensitively.
func LookupCommand(name string) (Command, bool) {
	cmd, ok := commandNames[strings.ToLower(name)]
	return cmd, ok
}

// =============================================================================
// ARGS
// =============================================================================

// Args holds the global flags and the command's own arguments.
type Args struct {
	JSON       bool
	Quiet      bool
	Verbose    bool
	NoColor    bool
	ConfigPath string

	// Name is the command word as typed.
	Name string
	// Help is set by -h or --help anywhere after the command word.
	Help bool
	// Raw holds the arguments after the command word, global flags removed.
	Raw []string
	// Err records a malformed global flag; Run returns it before dispatch.
	Err error
}

// Parse splits argv (without the program name) into a command and args.
// Global flags may appear before or after the command word.
func Parse(argv []string) (Command, Args) {
	var args Args
	rest := parseGlobalFlags(argv, &args, true)
	if len(rest) == 0 {
		return CmdHelp, args
	}

	args.Name = rest[0]
	args.Raw = parseGlobalFlags(rest[1:], &args, false)
	if isHelpFlag(args.Name) {
		args.Name = "help"
		return CmdHelp, args
	}
	for _, a := range args.Raw {
		if isHelpFlag(a) {
			args.Help = true
		}
	}

	cmd, ok := LookupCommand(args.Name)
	if !ok {
		return CmdUnknown, args
	}
	return cmd, args
}

func isHelpFlag(a string) bool {
	return a == "-h" || a == "--help" || a == "-help"
}

// parseGlobalFlags removes global flags from argv. With leading set it
// stops at the first non-flag, which is the command word. -q and -v are
// only global before the command word.
func parseGlobalFlags(argv []string, args *Args, leading bool) []string {
	var rest []string
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--json" || a == "-json":
			args.JSON = true
		case a == "--no-color" || a == "-no-color":
			args.NoColor = true
		case a == "--quiet" || (leading && a == "-q"):
			args.Quiet = true
		case a == "--verbose" || (leading && a == "-v"):
			args.Verbose = true
		case a == "--config":
			if i+1 >= len(argv) {
				args.Err = ErrMissingArgument("--config", "algods --config ~/.algods/config.toml status")
				continue
			}
			i++
			args.ConfigPath = argv[i]
		case strings.HasPrefix(a, "--config="):
			args.ConfigPath = strings.TrimPrefix(a, "--config=")
		case leading && (!strings.HasPrefix(a, "-") || isHelpFlag(a)):
			return append(rest, argv[i:]...)
		default:
			rest = append(rest, a)
		}
	}
	return rest
}

// =============================================================================
// HELP AND VERSION
// =============================================================================

// Guides for commands that have no guide in the usage package.
var extraGuides = map[Command]string{
	CmdGetAccount: `
  usage:

    $ getaccount -a <address|label>

  options:

    -a <address>    Account address or ledger label
    -h              Displays this help guide
  `,
	CmdListAccounts: `
  usage:

    $ listaccounts

  Lists the accounts in the local ledger with their current balance.
  `,
	CmdFundAccount: `
  usage:

    $ fundaccount -a <address|label> [-amount <microalgos>]

  options:

    -a <address>          Account to fund
    -amount <microalgos>  Amount in microAlgos (default: accounts.default_fund_microalgos)
    -h                    Displays this help guide
  `,
	CmdCreateToken: `
  usage:

    $ createtoken -creator <address|label> -total <n> -unit <name> [options]

  options:

    -creator string    Creator address or label
    -total int         Total supply in base units
    -decimals int      Decimal places (0-19)
    -unit string       Unit name (at most 8 bytes)
    -name string       Asset name (at most 32 bytes)
    -url string        Asset URL
    -frozen            Holdings start frozen
    -h                 Displays this help guide
  `,
	CmdListTokens: `
  usage:

    $ listtokens

  Lists the tokens created with createtoken.
  `,
	CmdListApps: `
  usage:

    $ listapps

  Lists the applications created with createapp.
  `,
	CmdStatus: `
  usage:

    $ status

  Shows sandbox, node and local ledger status.
  `,
	CmdConfig: `
  usage:

    $ config [show|get <key>|set <key> <value>|path]
  `,
	CmdHistory: `
  usage:

    $ history [-n <count>]

  options:

    -n int    Number of journal entries to show (default 20)
  `,
}

// ShowUsage prints the guide for cmd. Commands without a guide of their
// own print the top-level guide.
func ShowUsage(cmd Command) {
	switch cmd {
	case CmdCreateAccount:
		usage.CreateAccountUsage()
	case CmdCreateApp:
		usage.CreateAppUsage()
	case CmdCallApp:
		usage.CallAppUsage()
	default:
		if guide, ok := extraGuides[cmd]; ok {
			fmt.Fprintln(stdout, guide)
			return
		}
		usage.Usage()
		fmt.Fprintln(stdout, moreCommands)
	}
}

const moreCommands = `  more commands:

    listtokens:     Lists the tokens created with createtoken
    listapps:       Lists the applications created with createapp
    status:         Shows sandbox, node and ledger status
    config:         Shows or edits the algods configuration
    history:        Shows the operation journal
    version:        Prints the algods version

  global flags: --json, -q/--quiet, -v/--verbose, --config <path>, --no-color
  `

// HandleHelp prints the top-level guide, or the guide of "help <command>".
func HandleHelp(args Args) error {
	if len(args.Raw) > 0 {
		if cmd, ok := LookupCommand(args.Raw[0]); ok {
			ShowUsage(cmd)
			return nil
		}
	}
	ShowUsage(CmdHelp)
	return nil
}

// HandleUnknown prints the top-level guide and fails with a usage error.
func HandleUnknown(args Args) error {
	if !args.JSON {
		ShowUsage(CmdHelp)
	}
	return NewValidationError("command", args.Name, "unknown command")
}

// HandleVersion prints version information.
func HandleVersion(args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.JSON {
		return NewJSONResponse("version", data).Print()
	}
	fmt.Fprintf(stdout, "algods %s\n", data.Version)
	if !args.Quiet {
		fmt.Fprintf(stdout, "  commit: %s\n  built:  %s\n  go:     %s (%s)\n",
			data.GitCommit, data.BuildDate, data.GoVersion, data.Platform)
	}
	return nil
}
