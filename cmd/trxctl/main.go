package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dougsko/trx8/pkg/client"
	"github.com/pborman/getopt"
)

func main() {
	help := getopt.BoolLong("help", 'h', "display help")
	socketPath := getopt.StringLong("socket", 's', "/tmp/trxd.sock", "Unix socket path")
	command := getopt.StringLong("cmd", 'c', "", "Command to send (e.g., 'STATUS', 'KEY:0')")

	getopt.Parse()

	if *help {
		showHelp()
		return
	}

	if *socketPath == "" {
		fmt.Fprintf(os.Stderr, "Socket path is required\n")
		os.Exit(1)
	}

	if *command == "" {
		if getopt.NArgs() > 0 {
			*command = strings.Join(getopt.Args(), " ")
		} else {
			showHelp()
			return
		}
	}

	client := client.NewSocketClient(*socketPath)

	response, err := client.SendCommand(*command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", response.String())
	if !response.Success {
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("trxctl - trxd control tool")
	fmt.Println()
	getopt.Usage()
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  STATUS                    Get radio status")
	fmt.Println("  BANDS                     Get the band table and stored frequencies")
	fmt.Println("  KEY:<0..11>               Press a front panel key (6..11 are long presses)")
	fmt.Println("  TUNE:<pulses>[:<dir>]     Turn the encoder (negative pulses tune down)")
	fmt.Println("  SAVE                      Store all VFO frequencies")
	fmt.Println("  PING                      Test connection")
	fmt.Println("  QUIT                      Close the connection")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s STATUS\n", os.Args[0])
	fmt.Printf("  %s KEY:0\n", os.Args[0])
	fmt.Printf("  %s -c TUNE:-5\n", os.Args[0])
	fmt.Printf("  echo 'STATUS' | nc -U /tmp/trxd.sock\n")
}
