package email

const (
	subjectNoAgents         = "Lead perdido: nenhum corretor disponível"
	subjectSweepDigestFmt   = "%d leads expiraram sem atendimento"
	subjectFinancingCreated = "Nova solicitação de financiamento"
)
