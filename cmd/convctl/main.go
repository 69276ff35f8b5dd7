package main

import "mizan_chat_go_backend/cmd/convctl/cmd"

func main() {
	cmd.Execute()
}
