package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name TEXT NOT NULL,
				workflow_trigger TEXT NOT NULL,
				actions JSONB NOT NULL DEFAULT '[]',
				user_id VARCHAR(255) NOT NULL DEFAULT '',
				is_ai BOOLEAN NOT NULL DEFAULT false,
				prompt TEXT NOT NULL DEFAULT '',
				ai_context JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_user_id ON workflows(user_id);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE workflow_logs (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				workflow_name TEXT NOT NULL DEFAULT '',
				action_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				message TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_logs_workflow_id ON workflow_logs(workflow_id);
			CREATE INDEX idx_workflow_logs_created_at ON workflow_logs(created_at);
		`,
	}
}
