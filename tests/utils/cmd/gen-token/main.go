package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	testutil "taskboard/tests/utils"
)

func main() {
	var (
		count  = flag.Int("count", 1, "number of tokens to generate")
		prefix = flag.String("prefix", "board-user", "user id, or prefix for generated user ids when count > 1")
		start  = flag.Int("start", 1, "first index appended to prefix when count > 1")
		output = flag.String("output", "", "write all tokens to this file as a JSON array of {userId, token}")
		header = flag.Bool("header", false, "print the first token as an Authorization header value")
	)
	flag.Parse()

	if *count < 1 || *start < 1 {
		log.Fatal("count and start must be at least 1")
	}
	args := flag.Args()
	if len(args) > 0 && *count > 1 {
		log.Fatal("explicit user id cannot be combined with count > 1")
	}

	tokens, err := generate(*count, *prefix, *start, args)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	if *output != "" {
		if err := write(*output, tokens); err != nil {
			log.Fatalf("write tokens: %v", err)
		}
	}
	if *header {
		fmt.Print("Bearer ")
	}
	fmt.Print(tokens[0].Token)
}

type userToken struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func generate(count int, prefix string, start int, args []string) ([]userToken, error) {
	out := make([]userToken, count)
	for i := range out {
		userID := prefix
		switch {
		case len(args) > 0:
			userID = args[0]
		case count > 1:
			userID = fmt.Sprintf("%s-%d", prefix, start+i)
		}
		tok, err := testutil.TestToken(userID)
		if err != nil {
			return nil, err
		}
		out[i] = userToken{UserID: userID, Token: tok}
	}
	return out, nil
}

func write(path string, tokens []userToken) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
