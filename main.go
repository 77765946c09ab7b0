package main

import (
	"os"

	"skillverify/config"
	"skillverify/contract"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("skillverify.main")

func main() {
	cfg, err := config.Load(os.Getenv("CHAINCODE_CONFIG_FILE"))
	if err != nil {
		panic("Error loading chaincode configuration: " + err.Error())
	}
	if err := flogging.Global.ActivateSpec(cfg.LogSpec); err != nil {
		panic("Error activating log spec '" + cfg.LogSpec + "': " + err.Error())
	}

	cc, err := contractapi.NewChaincode(contract.NewSkillVerificationContract())
	if err != nil {
		panic("Error creating SkillVerificationContract: " + err.Error())
	}

	if !cfg.RunAsServer() {
		logger.Info("Starting chaincode against the peer")
		if err := cc.Start(); err != nil {
			panic("Error starting chaincode: " + err.Error())
		}
		return
	}

	tlsProps, err := cfg.TLSProperties()
	if err != nil {
		panic("Error loading chaincode TLS material: " + err.Error())
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ChaincodeID,
		Address:  cfg.ServerAddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	logger.Infof("Starting chaincode server '%s' on %s (tls disabled: %t)", cfg.ChaincodeID, cfg.ServerAddress, tlsProps.Disabled)
	if err := server.Start(); err != nil {
		panic("Error starting chaincode server: " + err.Error())
	}
}
