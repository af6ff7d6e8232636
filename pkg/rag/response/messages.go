package response

// Fixed user-facing messages. These must stay stable so clients and
// tests can rely on them, so they are not LLM-generated.
const (
	// MessageNoContext is returned when retrieval produced nothing usable.
	MessageNoContext = "Xin lỗi, tôi chưa tìm thấy tài liệu phù hợp để trả lời câu hỏi này."

	// MessageGenerationFailed is the degraded answer when the language
	// model errors out after context was already assembled.
	MessageGenerationFailed = "Xin lỗi, đã xảy ra lỗi khi soạn câu trả lời. Vui lòng thử lại."

	// MessageNoResults is the no_results outcome body.
	MessageNoResults = "Tôi không tìm thấy thông tin liên quan trong cơ sở dữ liệu thủ tục. Bạn có thể diễn đạt lại câu hỏi không?"
)
