package main

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"log"
	"math"
	"net/http"
)

// embedding-stub is a local stand-in for a real embedding provider. It
// returns a stable unit vector derived from each input's hash, so the same
// text always embeds identically across runs.
const dimension = 64

func main() {
	http.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		type item struct {
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Embedding: embed(text)}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data})

		log.Printf("embedded %d texts", len(req.Input))
	})

	log.Println("Embedding stub starting on port 5000")
	http.ListenAndServe(":5000", nil)
}

func embed(text string) []float64 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float64, dimension)
	var norm float64
	for i := range vec {
		seed := binary.BigEndian.Uint32(hash[(i*4)%28 : (i*4)%28+4])
		v := math.Sin(float64(seed) + float64(i))
		vec[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
