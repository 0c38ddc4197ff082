// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/etao-project/etao/tao"
)

var (
	cliHost string
	cliPort string
)

var rootCmd = &cobra.Command{
	Use:   "etao-cli",
	Short: "eTAO client - submit TAO queries to a running server",
}

var queryCmd = &cobra.Command{
	Use:   "query <query-string>",
	Short: "Execute a one-shot query script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tao.NewClient(cliHost, cliPort)
		resp, err := client.Query(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive [host] [port]",
	Short: "Run a query REPL against the server",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			cliHost = args[0]
		}
		if len(args) > 1 {
			cliPort = args[1]
		}
		client := tao.NewClient(cliHost, cliPort)
		printHeader()

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("tao > ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			script := strings.TrimSpace(scanner.Text())
			if script == "" {
				continue
			}

			resp, err := client.Query(cmd.Context(), script)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			if err := printResponse(resp); err != nil {
				return err
			}
		}
	},
}

func printResponse(resp *tao.QueryResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printHeader() {
	fmt.Println("==========================================================================")
	fmt.Println("TAO COMMAND LINE INTERFACE")
	fmt.Println("==========================================================================")
	fmt.Println("Supported AssocTypes: FRIEND, LOCATED, CHECKIN, COMMENT, AUTHORED, AUTHOREDBY, LIKES, LIKEDBY")
	fmt.Println("Supported Association Queries:")
	fmt.Println("    ASSOC ADD id1(int) assoc(AssocType) id2(int) time(int) data(str);")
	fmt.Println("    ASSOC GET id(int) assoc(AssocType) idset([int]);")
	fmt.Println("    ASSOC RGET id(int) assoc(AssocType) idset([int]) time-lo(int) time-hi(int);")
	fmt.Println("    ASSOC COUNT id(int) assoc(AssocType);")
	fmt.Println("    ASSOC RANGE id(int) assoc(AssocType) time-lo(int) time-hi(int) lim(int);")
	fmt.Println()
	fmt.Println("Supported ObjTypes: USER, COMMENT, LOCATION, POST")
	fmt.Println("Supported Object Queries:")
	fmt.Println("    OBJ ADD id(int) obj(ObjType) data(str);")
	fmt.Println("    OBJ GET id(int);")
	fmt.Println("==========================================================================")
	fmt.Printf("Connecting to... host: %s port: %s\n\n", cliHost, cliPort)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&cliHost, "host", "localhost", "server host")
	rootCmd.PersistentFlags().StringVar(&cliPort, "port", "8080", "server port")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(interactiveCmd)
}
