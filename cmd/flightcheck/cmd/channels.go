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
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// valid pulse band, µs. Mirrors what the supervisor's failsafe check accepts.
const (
	pulseValidMin = 900
	pulseValidMax = 2100
)

func init() {
	RootCmd.AddCommand(channelsCmd)
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Print raw RC channel values seen by a running flightd",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		snap, err := fetchStatus()
		if err != nil {
			log.Fatal(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Channel", "Value (µs)", "Status"})
		for i, v := range snap.Channels {
			status := color.GreenString("OK")
			if v < pulseValidMin || v > pulseValidMax {
				status = color.RedString("OUT OF RANGE")
			}
			table.Append([]string{
				fmt.Sprintf("%d", i),
				fmt.Sprintf("%d", v),
				status,
			})
		}
		table.Render()
	},
}
