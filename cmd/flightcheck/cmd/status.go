/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openuav/flight/daemon"
)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

func printStatus(snap *daemon.Snapshot) {
	if snap.Failsafe {
		fmt.Printf("%s failsafe active, arm/disarm dispatch suspended\n", failString)
	} else {
		fmt.Printf("%s pilot link healthy\n", okString)
	}
	if snap.Errors == "NONE" {
		fmt.Printf("%s no active faults\n", okString)
	} else {
		fmt.Printf("%s active faults: %s\n", failString, snap.Errors)
	}
	armed := color.GreenString("DISARMED")
	if snap.Armed {
		armed = color.RedString("ARMED")
	}
	fmt.Printf("%s motors %s\n", okString, armed)
	fmt.Printf("%s supervisor ticks processed: %d, failsafe events: %d\n", okString, snap.TicksProcessed, snap.FailsafeEvents)
	if snap.TicksProcessed == 0 {
		fmt.Printf("%s supervisor has not processed a tick yet\n", warnString)
	}
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print arming and failsafe state of a running flightd",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		snap, err := fetchStatus()
		if err != nil {
			log.Fatal(err)
		}
		printStatus(snap)
	},
}
