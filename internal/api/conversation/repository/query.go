package conversationRepository

const (
	queryInsertConversationLog = `
		INSERT INTO conversation_logs (
			session_id, request_id, user_message, agent_response,
			intent_detected, flow, action, source, latency_ms, created_at
		) VALUES (
			:session_id, :request_id, :user_message, :agent_response,
			:intent_detected, :flow, :action, :source, :latency_ms, :created_at
		)`

	queryListConversationLogs = `
		SELECT id, session_id, request_id, user_message, agent_response,
			intent_detected, flow, action, source, latency_ms, created_at
		FROM conversation_logs
		WHERE session_id = :session_id
		ORDER BY created_at ASC, id ASC
		LIMIT :limit`
)
