// Command robin-cli is a thin interactive client over internal/robinapi,
// the supplement spec.md's original C counterpart shipped as a
// robin_api.c-linked CLI binary (not retrieved, but implied by its
// "used as static library from clients" header).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lzulberti/robin/internal/robinapi"
)

func main() {
	address := flag.String("address", "localhost:8080", "Robin server address")
	flag.Parse()

	client, err := robinapi.Dial(*address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error connecting to %s: %v\n", *address, err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("connected to %s\n", *address)
	runREPL(client)
}

func runREPL(client *robinapi.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("robin> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("robin> ")
			continue
		}

		fields := strings.Fields(line)
		if err := dispatch(client, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		if fields[0] == "quit" {
			return
		}
		fmt.Print("robin> ")
	}
}

func dispatch(client *robinapi.Client, command string, args []string) error {
	switch command {
	case "register":
		if len(args) != 2 {
			return fmt.Errorf("usage: register <email> <password>")
		}
		return client.Register(args[0], args[1])

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		return client.Login(args[0], args[1])

	case "logout":
		return client.Logout()

	case "follow":
		if len(args) == 0 {
			return fmt.Errorf("usage: follow <email>...")
		}
		results, err := client.Follow(args)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s %d\n", r.Email, r.Code)
		}
		return nil

	case "followers":
		followers, err := client.Followers()
		if err != nil {
			return err
		}
		for _, f := range followers {
			fmt.Println(f)
		}
		return nil

	case "cip":
		if len(args) == 0 {
			return fmt.Errorf("usage: cip <text...>")
		}
		return client.Cip(strings.Join(args, " "))

	case "cips":
		count := 0
		if len(args) == 1 {
			fmt.Sscanf(args[0], "%d", &count)
		}
		cips, err := client.Cips(count)
		if err != nil {
			return err
		}
		for _, c := range cips {
			fmt.Printf("[%d] %s: %s\n", c.ID, c.Author, c.Text)
		}
		return nil

	case "whoami":
		who, err := client.Whoami()
		if err != nil {
			return err
		}
		fmt.Println(who)
		return nil

	case "quit":
		return client.Quit()

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
