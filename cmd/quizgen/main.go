package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"openlearnhub"
)

func main() {
	var (
		videoTitle = flag.String("title", "", "Video title to generate a quiz for (required)")
		topic      = flag.String("topic", "", "Topic of the video")
		difficulty = flag.String("difficulty", "beginner", "Difficulty level (beginner, intermediate, advanced)")
		outputFile = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		apiKey     = flag.String("api-key", "", "OpenRouter API key (or set OPENROUTER_API_KEY env var)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	openlearnhub.SetVerbose(*verbose)

	if *videoTitle == "" {
		log.Fatal("Video title is required. Use -title flag.")
	}

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENROUTER_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenRouter API key is required. Use -api-key flag or set OPENROUTER_API_KEY environment variable.")
		}
	}

	generator := openlearnhub.NewQuizGenerator(openlearnhub.NewCompletionClient(*apiKey, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	quiz, err := generator.GenerateQuiz(ctx, *videoTitle, *topic, *difficulty)
	if err != nil {
		log.Fatalf("Failed to generate quiz: %v", err)
	}

	output, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal quiz: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Quiz saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}
