// Package id provides ID generation helpers used across services.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

const (
	PrefixTopic     = "topic"
	PrefixEpisode   = "ep"
	PrefixStrategy  = "sv"
	PrefixEvolution = "evo"
)

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewWithLength(prefix string, length int) string {
	id, err := nanoid.New(length)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewTopic() string     { return New(PrefixTopic) }
func NewEpisode() string   { return New(PrefixEpisode) }
func NewStrategy() string  { return New(PrefixStrategy) }
func NewEvolution() string { return New(PrefixEvolution) }
