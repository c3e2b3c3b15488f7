package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docintel/docintel/rag"
)

var demoQuestions = []string{
	"What is the main topic discussed in the documents?",
	"What are the key findings or conclusions?",
	"Are there any statistics or data mentioned?",
	"What methodologies are discussed?",
	"What are the main challenges or problems addressed?",
	"What recommendations are provided?",
	"Who are the authors or organizations mentioned?",
	"What is the scope or context of the research?",
}

// runChat starts an interactive chat session on the terminal.
func runChat(agent *rag.Agent) {
	stats := agent.Stats()
	fmt.Printf("Knowledge base ready: %d documents, %d chunks (%.2fs)\n",
		stats.DocumentsLoaded, stats.ChunksCreated, stats.ProcessingTime)
	fmt.Println("Ask questions about your documents. Type 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		case "":
			continue
		}

		answer, err := agent.Ask(context.Background(), question)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n", answer)
	}
}

// runDemo asks the canned demo questions and prints the answers.
func runDemo(agent *rag.Agent) {
	stats := agent.Stats()
	fmt.Printf("Knowledge base ready: %d documents, %d chunks (%.2fs)\n\n",
		stats.DocumentsLoaded, stats.ChunksCreated, stats.ProcessingTime)

	for i, question := range demoQuestions {
		fmt.Printf("Question %d: %s\n", i+1, question)

		start := time.Now()
		answer, err := agent.Ask(context.Background(), question)
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			continue
		}

		fmt.Printf("Answer: %s\n", answer)
		fmt.Printf("(%.2fs)\n\n", time.Since(start).Seconds())
	}
}
