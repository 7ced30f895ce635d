package ai

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// regionPrompt is rendered with eino's FString formatter, so literal braces
// must not appear outside the {topic} and {question} placeholders.
const regionPrompt = `Responda de maneira bem detalhada e completa sobre apenas o que foi perguntado educadamente. ` +
	`Por exemplo: para um cumprimento, responda com algo como "Boa noite! Posso ajudar com alguma informação sobre a região de {topic}?" ` +
	`ou, para perguntas específicas, responda apenas o que foi perguntado de uma forma mais educada e completa. ` +
	`Responda também somente sobre a região italiana "{topic}". Pergunta: {question}` +
	"\n\n" +
	`Mande a mensagem em português, sem formatações (ex.: asteriscos para negrito, etc), apenas texto e espaçamentos normais.`

// newPromptTemplate builds the single-turn template sent for every question.
// Transcript history is not included; each call stands alone.
func newPromptTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString, schema.UserMessage(regionPrompt))
}
