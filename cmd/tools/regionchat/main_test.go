package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuysCode/giovannibot/backend/internal/service/chat"
)

type completerFunc func(ctx context.Context, topic, userMessage string) (string, error)

func (f completerFunc) Complete(ctx context.Context, topic, userMessage string) (string, error) {
	return f(ctx, topic, userMessage)
}

func TestREPLConversation(t *testing.T) {
	var topics []string
	session := chat.NewSession("test", "toscana", completerFunc(func(_ context.Context, topic, question string) (string, error) {
		topics = append(topics, topic)
		return "Risposta su " + topic + ": " + question, nil
	}))
	defer session.Close()

	in := strings.NewReader("Qual a capital?\n\n/regiao sicilia\nGastronomia\n/sair\nignored\n")
	var out bytes.Buffer

	require.NoError(t, runREPL(context.Background(), in, &out, session, newRenderer(true)))

	text := out.String()
	assert.Contains(t, text, "Bem-vindo a Toscana")
	assert.Contains(t, text, "Giovanni Bot: Risposta su Toscana: Qual a capital?")
	assert.Contains(t, text, "Bem-vindo a Sicilia")
	assert.Contains(t, text, "Giovanni Bot: Risposta su Sicilia: Gastronomia")
	assert.NotContains(t, text, "ignored")
	assert.Equal(t, []string{"Toscana", "Sicilia"}, topics)

	snap := session.Snapshot()
	assert.Equal(t, "Sicilia", snap.Topic)
	assert.Len(t, snap.Turns, 2)
}

func TestREPLShowsApologyOnFailure(t *testing.T) {
	session := chat.NewSession("test", "", completerFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("boom")
	}))
	defer session.Close()

	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), strings.NewReader("Ciao\n"), &out, session, newRenderer(true)))

	assert.Contains(t, out.String(), "Bem-vindo a Lazio")
	assert.Contains(t, out.String(), "Giovanni Bot: "+chat.ApologyMessage)
}

func TestRegionsCommandListsCatalogue(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"regions", "--no-color"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		noColor = false
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 20)
	assert.Contains(t, out.String(), "Roma")
}
