package server

import (
	"fmt"

	"resumerank/internal/utils"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayVocabularyInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health      - Health check")
	fmt.Println("  GET  /stats       - Server statistics")
	fmt.Println("  GET  /vocabulary  - Terms used for matching (requires API key)")
	fmt.Println("  POST /rank        - Rank a batch of resumes (requires API key)")
	fmt.Println("  POST /extract     - Extract and score one resume (requires API key)")
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /rank, /extract and /vocabulary")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Per-file size limit: %s, batch limit: %d resumes\n",
			utils.FormatFileSize(s.MaxRequestSize), s.MaxBatchSize)
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
	fmt.Printf("Workers per batch: %d\n", s.Workers)
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}

func (s *Server) displayVocabularyInfo() {
	if s.VocabularyWatcher != nil {
		fmt.Printf("Vocabulary: %s (reloaded on change)\n", s.VocabularyWatcher.File())
		return
	}
	if s.AppConfig != nil && s.AppConfig.Engine.VocabularyFile != "" {
		fmt.Printf("Vocabulary: %s\n", s.AppConfig.Engine.VocabularyFile)
		return
	}
	fmt.Println("Vocabulary: built-in")
}
