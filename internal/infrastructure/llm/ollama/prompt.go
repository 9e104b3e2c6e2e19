package ollama

const reasoningSystemPrompt = "You are an eligibility reasoning assistant. Think step by step (ReAct style)."

const ocrPrompt = `Transcribe all text printed on this identity document.
Keep dates exactly as printed, one field per line.
Return only the transcription, no commentary.`
