package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	modelchat "github.com/BuysCode/giovannibot/backend/internal/model/chat"
	"github.com/BuysCode/giovannibot/backend/internal/model/region"
	"github.com/BuysCode/giovannibot/backend/internal/service/chat"
)

const (
	botName  = "Giovanni Bot"
	userName = "Tu"
)

type renderer struct {
	bot   lipgloss.Style
	user  lipgloss.Style
	title lipgloss.Style
	muted lipgloss.Style
	plain bool
}

func newRenderer(plain bool) renderer {
	if plain {
		return renderer{plain: true}
	}
	return renderer{
		bot:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		user:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		title: lipgloss.NewStyle().Bold(true).Underline(true),
		muted: lipgloss.NewStyle().Faint(true),
	}
}

func (r renderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

func (r renderer) turn(t modelchat.Turn) string {
	if t.Role == modelchat.RoleUser {
		return r.style(r.user, userName+":") + " " + t.Content
	}
	return r.style(r.bot, botName+":") + " " + t.Content
}

func (r renderer) welcome(topic string) string {
	var b strings.Builder
	b.WriteString(r.style(r.title, "Bem-vindo a "+topic))
	b.WriteString("\n")
	b.WriteString("O que você deseja saber sobre " + topic + " hoje?\n")
	for _, s := range region.Suggestions() {
		b.WriteString(r.style(r.muted, "  • "+s) + "\n")
	}
	b.WriteString(r.style(r.muted, "Comandos: /regiao <nome>, /sair"))
	return b.String()
}

func (r renderer) regionLine(item region.Region) string {
	return fmt.Sprintf("%-22s %s", item.Name, r.style(r.muted, item.Capital))
}

// runREPL reads one question per line. "/regiao <nome>" switches region and
// "/sair" (or EOF) ends the session.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, session *chat.Session, r renderer) error {
	fmt.Fprintln(out, r.welcome(session.Topic()))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, r.style(r.user, userName+"> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		switch cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " "); cmd {
		case "/sair", "/quit":
			return nil
		case "/regiao", "/region":
			snap := session.ChangeRegion(arg)
			fmt.Fprintln(out, r.welcome(snap.Topic))
			continue
		}

		done, accepted := session.Submit(ctx, line)
		if !accepted {
			continue
		}
		fmt.Fprintln(out, r.style(r.muted, botName+" está digitando..."))

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		if latest, ok := session.Snapshot().Latest(); ok {
			fmt.Fprintln(out, r.turn(latest))
		}
	}
}
