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
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ppsd/ppsgpio/pps"
	"github.com/ppsd/ppsgpio/stats"
)

func init() {
	RootCmd.AddCommand(sourcesCmd)
}

func modeString(mode uint32) string {
	var parts []string
	if pps.Mode(mode)&pps.CaptureAssert != 0 {
		parts = append(parts, "assert")
	}
	if pps.Mode(mode)&pps.CaptureClear != 0 {
		parts = append(parts, "clear")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("0x%x", mode)
	}
	return strings.Join(parts, "+")
}

func eventColumns(e *stats.EventStat) (string, string) {
	if e == nil {
		return "-", "-"
	}
	ts := time.Unix(e.Sec, e.Nsec).Format(time.RFC3339Nano)
	return fmt.Sprintf("%d", e.Seq), ts
}

func printSources(sources []stats.SourceStat) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"name", "captures", "assert seq", "assert time", "clear seq", "clear time",
	})
	for _, s := range sources {
		aSeq, aTime := eventColumns(s.LastAssert)
		cSeq, cTime := eventColumns(s.LastClear)
		table.Append([]string{s.Name, modeString(s.Mode), aSeq, aTime, cSeq, cTime})
	}
	table.Render()
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Print PPS sources registered with ppsgpiod and their latest events",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		sources, err := stats.FetchSources(rootURLFlag)
		if err != nil {
			log.Fatal(err)
		}
		printSources(sources)
	},
}
