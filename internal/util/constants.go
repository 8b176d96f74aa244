package util

const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	QuestionSourceAIServer = "ai_server"
	QuestionSourceOpenAI   = "openai"
)

const (
	HeaderUserUUID       = "X-User-UUID"
	HeaderUserDepartment = "X-User-Department"
	HeaderInternalToken  = "X-Internal-Token"
)

// DepartmentUnknown 未填写部门的统计分组
const DepartmentUnknown = "other"
