package version

// Version はアプリケーションのバージョン
const Version = "0.3.0"
