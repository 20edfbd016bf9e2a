package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"topicquiz"
)

const cliCallerID = "cli"

func main() {
	var (
		topic      = flag.String("topic", "", "Quiz topic (required unless -history is set)")
		outputFile = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		playMode   = flag.Bool("play", false, "Play the quiz interactively")
		history    = flag.Int("history", 0, "List the N most recent generations from the audit database")
		dbPath     = flag.String("db", "", "Audit database path (default: $AUDIT_DB_PATH)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	topicquiz.SetVerbose(*verbose)

	if *history > 0 {
		path := *dbPath
		if path == "" {
			path = os.Getenv("AUDIT_DB_PATH")
		}
		if path == "" {
			log.Fatal("Audit database is required. Use -db flag or set AUDIT_DB_PATH environment variable.")
		}
		if err := printHistory(os.Stdout, path, *history); err != nil {
			log.Fatalf("Failed to read history: %v", err)
		}
		return
	}

	if *topic == "" {
		log.Fatal("Topic is required. Use -topic flag.")
	}

	cfg, err := topicquiz.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dbPath != "" {
		cfg.AuditDBPath = *dbPath
	}
	topicquiz.SetVerbose(cfg.Verbose || *verbose)

	provider, err := cfg.NewProvider()
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	store := topicquiz.NewMemoryStore(cfg.SessionTTL)
	generator := topicquiz.NewQuizGenerator(topicquiz.NewQuestionMaker(provider), store)
	generator.SetTimeout(cfg.LLMTimeout)
	generator.SetTraceDir(cfg.TraceDir)
	grader := topicquiz.NewQuizGrader(store)

	if cfg.AuditDBPath != "" {
		db, err := topicquiz.OpenDB(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("Failed to open audit database: %v", err)
		}
		defer db.CloseDB()
		generator.SetRecorder(db)
		grader.SetRecorder(db)
	}

	ctx := context.Background()

	if *playMode {
		fmt.Printf("🎯 Starting interactive quiz on: %s\n", *topic)
		fmt.Println("⏳ Generating questions... (this may take a moment)")
		fmt.Println()
	}

	quiz, err := generator.GenerateQuiz(ctx, cliCallerID, *topic)
	if err != nil {
		log.Fatalf("Failed to generate quiz: %v", err)
	}

	if *playMode {
		answers := askQuestions(os.Stdin, os.Stdout, quiz)
		summary, err := grader.GradeQuiz(ctx, cliCallerID, answers)
		if err != nil {
			log.Fatalf("Failed to grade quiz: %v", err)
		}
		printSummary(os.Stdout, summary)
		return
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

// askQuestions prompts for every question and collects the answers. An empty
// line skips the question.
func askQuestions(in io.Reader, out io.Writer, quiz *topicquiz.QuizSet) topicquiz.Answers {
	scanner := bufio.NewScanner(in)
	letters := "ABCD"
	answers := topicquiz.Answers{}

	for _, q := range quiz.Questions {
		fmt.Fprintf(out, "Question %d/%d:\n", q.ID, len(quiz.Questions))
		fmt.Fprintf(out, "%s\n\n", q.Question)
		for i, option := range q.Options {
			fmt.Fprintf(out, "%c) %s\n", letters[i], option)
		}
		fmt.Fprintln(out)

		for {
			fmt.Fprint(out, "Your answer (A/B/C/D, empty to skip): ")
			if !scanner.Scan() {
				return answers
			}
			input := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if input == "" {
				break
			}
			if idx := strings.Index(letters, input); len(input) == 1 && idx >= 0 {
				answers[strconv.Itoa(q.ID)] = topicquiz.Answer(idx)
				break
			}
			fmt.Fprintln(out, "Please enter A, B, C, or D")
		}
		fmt.Fprintln(out)
	}
	return answers
}

func printSummary(out io.Writer, summary *topicquiz.GradeSummary) {
	for i, result := range summary.Results {
		fmt.Fprintf(out, "%d. %s\n", i+1, result.Question)
		if result.Correct {
			fmt.Fprintf(out, "   ✅ Correct: %s\n", result.CorrectAnswer)
		} else {
			fmt.Fprintf(out, "   ❌ You answered: %s. Correct answer: %s\n", result.UserAnswer, result.CorrectAnswer)
		}
		if result.Reasoning != "" {
			fmt.Fprintf(out, "   💡 %s\n", result.Reasoning)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "🏆 Score: %d/%d (%.1f%%)\n", summary.Score, summary.Total, summary.Percentage)

	switch {
	case summary.Percentage >= 80:
		fmt.Fprintln(out, "🌟 Excellent work!")
	case summary.Percentage >= 60:
		fmt.Fprintln(out, "👍 Good job!")
	default:
		fmt.Fprintln(out, "📚 Keep studying!")
	}
}

func printHistory(out io.Writer, dbPath string, limit int) error {
	db, err := topicquiz.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	ctx := context.Background()
	generations, err := db.GetGenerations(ctx, limit)
	if err != nil {
		return err
	}
	if len(generations) == 0 {
		fmt.Fprintln(out, "No quizzes generated yet")
		return nil
	}

	for _, gen := range generations {
		fmt.Fprintf(out, "%s  %-9s  %-9s  %s  %q\n",
			gen.CreatedAt.Local().Format(time.DateTime), gen.Status, gen.Provider, gen.QuizID, gen.Topic)
		if gen.Status == topicquiz.GenerationFailed {
			fmt.Fprintf(out, "    error: %s\n", gen.Error)
			continue
		}

		submissions, err := db.GetSubmissions(ctx, gen.QuizID)
		if err != nil {
			return err
		}
		for _, sub := range submissions {
			fmt.Fprintf(out, "    %s  %d/%d (%.1f%%)\n",
				sub.CreatedAt.Local().Format(time.DateTime), sub.Score, sub.Total, sub.Percentage)
		}
	}
	return nil
}
