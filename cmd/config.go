package cmd

type Config struct {
	HTTPPort         string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSslMode        string
	OrdersAPIBaseURL string
	ChangeFeedKind   string
	ChangeFeedWSURL  string
	RedisHost        string
	RedisPassword    string
}
