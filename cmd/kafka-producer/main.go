package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// ScoreMessage is the message consumed by the leaderboard service
type ScoreMessage struct {
	PlayerID int64 `json:"player_id"`
	Score    int64 `json:"score"`
}

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
}

func playerName(id int64) string {
	idx := int(id-1) % len(playerPrefixes)
	return fmt.Sprintf("%s%d", playerPrefixes[idx], int(id-1)/len(playerPrefixes)+1)
}

// registerPlayers registers ids 1..n over HTTP. Players that already
// exist are counted as registered.
func registerPlayers(baseURL string, n int) error {
	client := &http.Client{Timeout: 5 * time.Second}
	for id := int64(1); id <= int64(n); id++ {
		name := playerName(id)
		body, _ := json.Marshal(map[string]interface{}{
			"id":       id,
			"username": name,
			"email":    strings.ToLower(name) + "@example.com",
		})

		resp, err := client.Post(strings.TrimRight(baseURL, "/")+"/api/register-player", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("registering player %d: %w", id, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
			return fmt.Errorf("registering player %d: unexpected status %d", id, resp.StatusCode)
		}
	}
	return nil
}

func main() {
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "leaderboard-scores", "Kafka topic")
	totalPlayers := flag.Int("players", 100, "Number of players (ids 1..N)")
	registerURL := flag.String("register-url", "", "Service base URL used to register players first (empty = skip)")
	updatesPerSecond := flag.Int("rate", 100, "Updates per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *totalPlayers < 1 || *updatesPerSecond < 1 {
		log.Fatal("players and rate must be positive")
	}

	if *registerURL != "" {
		fmt.Printf("Registering %d players at %s...\n", *totalPlayers, *registerURL)
		if err := registerPlayers(*registerURL, *totalPlayers); err != nil {
			log.Fatalf("Failed to register players: %v", err)
		}
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	var successCount, errorCount, updateCount int64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	finish := func(reason string) {
		fmt.Printf("\n%s\n", reason)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("Completed. Updates: %d, Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&updateCount), atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*updatesPerSecond))
	defer ticker.Stop()
	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	fmt.Printf("Producing to %s on %s at %d/sec. Press Ctrl+C to stop\n", *topic, *brokers, *updatesPerSecond)

	for {
		select {
		case <-sigChan:
			finish("Shutting down...")
			return

		case <-deadline:
			finish("Duration reached, shutting down...")
			return

		case <-ticker.C:
			playerID := int64(rand.Intn(*totalPlayers) + 1)
			data, err := json.Marshal(ScoreMessage{
				PlayerID: playerID,
				Score:    int64(rand.Intn(400) + 100),
			})
			if err != nil {
				log.Printf("Failed to marshal message: %v", err)
				continue
			}

			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(strconv.FormatInt(playerID, 10)),
				Value: sarama.ByteEncoder(data),
			}
			atomic.AddInt64(&updateCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Updates: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&updateCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
