// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package usage renders the algods help guides.
//
// Only the top-level guide and the createaccount, createapp and callapp
// guides are exported. The build and appinfo guides exist but are package
// private, so "build -h" and "appinfo -h" fall back to the top-level guide.
package usage

import (
	"fmt"
	"io"
	"os"
)

// stdout is swapped by tests.
var stdout io.Writer = os.Stdout

const usageText = `
  algods helps you manage your local Algorand development environment.

  usage:

    $ algods <command>

  commands:

    startnet:       Uses Algorand's sandbox to create a new private network
    stopnet:        Stops sandbox environment and deletes docker containers
    getaccount:     Retrieves account info
    listaccounts:   Lists existing accounts in your private network
    createaccount:  Creates a new Algorand account in your private network
    fundaccount:    Funds an existing Algorand account
    createtoken:    Creates a new ASA in your private network
    build:          Compiles Approval and Clear program from pyteal code
    createapp:      Issues a transaction that creates an application
    appinfo:        Displays App info
    callapp:        Issues a transaction that calls an application
    help:           Displays this help guide
  `

const createAccountText = `
  usage:

    $ createaccount <options>
  
  options:

    -a <address>    Returns account info for a given address
    -h              Displays this help guide
  `

const createAppText = `
  usage:

    $ createapp <options>
  
  options:

    -creator string    Creator address
    -app string        App directory relative path
    -h                 Displays this help guide
  `

const callAppText = `
  usage:

    $ callapp <options>
  
  options:

    -app int           Application ID
    -f string          Account to call app from
    -args  array       Args to encode for application transactions 
                       (all will be encoded to a byte slice). For ints, use the form 
                       'int:1234'. For raw bytes, use the form 'b64:A=='. For printable 
                       strings, use the form 'str:hello'. For addresses, use the form 
                       'addr:XYZ...'.
    -h                 Displays this help guide
  `

const buildText = `
  usage:

    $ build <options>
  
  options:

    -c <contract_name>  Compiles the TEAL scripts for the given contract 
    -h                  Displays this help guide
  `

const appinfoText = `
  usage:

    $ appinfo <options>
  
  options:

    -a <app_id>  Displays the App with the given id
    -h           Displays this help guide
  `

func render(text string) {
	fmt.Fprintln(stdout, text)
}

// Usage prints the top-level guide listing every command.
func Usage() { render(usageText) }

// CreateAccountUsage prints the createaccount guide.
func CreateAccountUsage() { render(createAccountText) }

// CreateAppUsage prints the createapp guide.
func CreateAppUsage() { render(createAppText) }

// CallAppUsage prints the callapp guide, including the -args encodings.
func CallAppUsage() { render(callAppText) }

func buildUsage() { render(buildText) }

func appinfoUsage() { render(appinfoText) }
