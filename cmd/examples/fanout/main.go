//go:build !durable

package main

import (
	"context"
	"encoding/json"
	"log"
	"maps"
	"slices"

	"github.com/runloop-dev/durable-go"
	"github.com/runloop-dev/durable-go/httpadapter"
)

func main() {
	getRepo := durable.Func("getRepo", func(ctx context.Context, name string) (*httpadapter.Response, error) {
		return httpadapter.Get(context.Background(), "https://api.github.com/repos/runloop-dev/"+name)
	})

	getStargazers := durable.Func("getStargazers", func(ctx context.Context, url string) (*httpadapter.Response, error) {
		return httpadapter.Get(context.Background(), url)
	})

	reduceStargazers := durable.Func("reduceStargazers", func(ctx context.Context, stargazerURLs []string) ([]string, error) {
		responses, err := getStargazers.Gather(stargazerURLs)
		if err != nil {
			return nil, err
		}
		stargazers := map[string]struct{}{}
		for _, res := range responses {
			var stars []struct {
				Login string `json:"login"`
			}
			if err := json.Unmarshal(res.Body, &stars); err != nil {
				return nil, err
			}
			for _, star := range stars {
				stargazers[star.Login] = struct{}{}
			}
		}
		return slices.Collect(maps.Keys(stargazers)), nil
	})

	fanout := durable.Func("fanout", func(ctx context.Context, repoNames []string) ([]string, error) {
		responses, err := getRepo.Gather(repoNames)
		if err != nil {
			return nil, err
		}

		var stargazerURLs []string
		for _, res := range responses {
			var repo struct {
				StargazersURL string `json:"stargazers_url"`
			}
			if err := json.Unmarshal(res.Body, &repo); err != nil {
				return nil, err
			}
			stargazerURLs = append(stargazerURLs, repo.StargazersURL)
		}

		return reduceStargazers.Await(stargazerURLs)
	})

	endpoint, err := durable.New()
	if err != nil {
		log.Fatalf("failed to create endpoint: %v", err)
	}
	endpoint.Register(getRepo)
	endpoint.Register(getStargazers)
	endpoint.Register(reduceStargazers)
	endpoint.Register(fanout)

	go func() {
		if _, err := fanout.Dispatch(context.Background(), []string{"coroutine", "durable-go"}); err != nil {
			log.Fatalf("failed to dispatch call: %v", err)
		}
	}()

	if err := endpoint.Serve(); err != nil {
		log.Fatalf("failed to serve endpoint: %v", err)
	}
}
