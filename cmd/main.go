package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/ragchat/internal/models"
	"github.com/xhad/ragchat/pkg/chat"
	"github.com/xhad/ragchat/pkg/citation"
	"github.com/xhad/ragchat/pkg/config"
	"github.com/xhad/ragchat/server"
)

const systemPrompt = "You are a helpful Northwind Health insurance assistant. " +
	"Answer questions about health plans, coverage, benefits, and policies " +
	"based on the provided documents. Be accurate, helpful, and cite your sources."

func main() {
	var configPath, addr string
	var serve bool

	flag.StringVar(&configPath, "config", "", "Path to settings file")
	flag.BoolVar(&serve, "serve", false, "Run the WebSocket gateway instead of the CLI")
	flag.StringVar(&addr, "addr", ":8080", "Listen address for the WebSocket gateway")
	flag.Parse()

	if err := run(configPath, serve, addr, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string, serve bool, addr string, args []string) error {
	color.Cyan("=== RAG Client (Managed Identity) ===\n")

	// A .env file, if present, feeds the environment tier.
	_ = godotenv.Load()

	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return err
	}

	cfg := config.NewResolver(settings, nil).Load()

	if ok, missing := cfg.Validate(); !ok {
		color.Red("Please configure required settings in .env file or environment variables.")
		color.Red("Missing: %s", strings.Join(missing, ", "))
		return nil
	}

	// AzureCLICredential respects the az login tenant context.
	credential, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize credential: %v", err)
	}

	client, err := chat.NewWithConfig(chat.ClientConfig{
		Endpoint:   cfg.Endpoint,
		Deployment: cfg.ChatDeployment,
		Credential: credential,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat client: %v", err)
	}

	source := chat.NewSearchDataSource(cfg)

	if serve {
		return server.Run(addr, client, source, systemPrompt)
	}

	parser := citation.NewParser()
	history := []models.Message{{Role: models.RoleSystem, Content: systemPrompt}}

	// One-shot query from the command line.
	if len(args) > 0 {
		query := strings.Join(args, " ")

		fmt.Println("Testing basic Azure OpenAI connection...")
		test, err := client.Send(context.Background(), []models.Message{
			{Role: models.RoleUser, Content: "Say hello in one word"},
		}, nil)
		if err != nil {
			color.Red("Connection error: %v\n", err)
			return nil
		}
		if answer, err := chat.ExtractAnswer(test); err == nil {
			color.Green("Connected to Azure AI: %s\n", answer)
		}

		fmt.Println("Starting RAG query...")
		sendQuery(client, parser, source, &history, query)
		return nil
	}

	// Interactive query loop.
	color.Cyan("\nRAG Client Ready! Enter your questions (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	for {
		userPrompt("\nQuestion: ")
		if !scanner.Scan() {
			break
		}

		query := scanner.Text()
		if query == "" || strings.ToLower(query) == "exit" {
			break
		}

		sendQuery(client, parser, source, &history, query)
	}

	color.Cyan("Goodbye!")
	return nil
}

// sendQuery runs one request/response cycle: ask, print the answer,
// print citations when the response carries any. Citation problems
// never block the answer.
func sendQuery(client *chat.Client, parser *citation.Parser, source *models.DataSource, history *[]models.Message, query string) {
	*history = append(*history, models.Message{Role: models.RoleUser, Content: query})

	spinner := getSpinner("Generating response...")
	raw, err := client.Send(context.Background(), *history, source)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		color.Red("Error: %v\n", err)
		return
	}

	answer, err := chat.ExtractAnswer(raw)
	if err != nil {
		color.Red("Error: %v\n", err)
		return
	}

	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	assistantPrompt("\nAnswer: %s\n\n", answer)

	if citations := parser.ParseCitations(raw); len(citations) > 0 {
		fmt.Println("Citations:")
		for i, c := range citations {
			fmt.Println(parser.FormatCitation(c, i+1))
		}
		fmt.Println()
	}

	*history = append(*history, models.Message{Role: models.RoleAssistant, Content: answer})
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
