package ui

// User-facing notice texts
const (
	MsgPermissionDenied     = "Você não tem permissão para visualizar essas informações."
	MsgSnapshotFailed       = "Não foi possível carregar os dados do mapa."
	MsgSelectPorts          = "Por favor, selecione as portas de origem e destino."
	MsgConnectCreated       = "Conexão criada com sucesso!"
	MsgConnectRejected      = "Erro ao conectar portas: "
	MsgConnectFailed        = "Ocorreu um erro de comunicação ao tentar criar a conexão."
	MsgDisconnectDone       = "Conexão removida com sucesso!"
	MsgDisconnectRejected   = "Erro ao desconectar: "
	MsgDisconnectFailed     = "Erro na requisição."
	MsgMissingPort          = "Erro: ID da porta de origem não está disponível."
	MsgPortsFailed          = "Ocorreu um erro ao processar as portas livres."
	MsgEquipmentFailed      = "Erro ao buscar informações do equipamento."
	MsgEquipmentNotFound    = "Equipamento não encontrado na lista de nodes."
	MsgEquipmentWrongTenant = "Equipamento não pertence à empresa selecionada!"
	MsgInvalidSelection     = "ID do equipamento ou ID da empresa inválidos!"
	MsgUnknownError         = "Erro desconhecido"
)
