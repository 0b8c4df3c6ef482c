// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package workflow

import "fmt"

// SystemPrompt is the default system prompt used when a request does not
// override it.
const SystemPrompt = `You are a helpful AI assistant with access to a knowledge base and conversation memory.
Your role is to answer user questions based on:
1. The retrieved context from the knowledge base
2. Previous conversation history when available

Guidelines:
- Always base your answers on the provided context and conversation history
- If asked about previous queries or conversation, refer to the conversation history
- If the context doesn't contain relevant information, politely say you don't have that information
- Be concise and accurate
- If you're uncertain, acknowledge it
- Maintain a professional and friendly tone
- Remember previous interactions in the same conversation thread
`

const ragPromptTemplate = `You are a knowledgeable assistant. Use the following context to answer the user's question.

Context from knowledge base:
%s

User Question: %s

Instructions:
- Answer based on the context provided above
- If the context doesn't contain the answer, say "I don't have enough information to answer that question."
- Be specific and cite relevant information from the context
- Keep your answer clear and concise

Answer:`

// buildRAGPrompt fills the retrieval template with context and question.
func buildRAGPrompt(context, question string) string {
	return fmt.Sprintf(ragPromptTemplate, context, question)
}
